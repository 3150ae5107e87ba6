package normalize

// substitution is one fixed rewrite rule applied with word-boundary,
// case-insensitive matching. Whether a hit is recorded as an abbreviation
// expansion or a case fix depends on the matched text (see classify in
// service.go).
type substitution struct {
	pattern     string // matched as a whole word, case-insensitive
	replacement string
}

// abbreviations expands AWS shorthand and fixes service-name casing.
// Replacements must not themselves match any pattern, or normalization
// would stop being idempotent.
var abbreviations = []substitution{
	{"s3", "S3"},
	{"ec2", "EC2"},
	{"ddb", "DynamoDB"},
	{"dynamodb", "DynamoDB"},
	{"dynamo db", "DynamoDB"},
	{"lambda", "Lambda"},
	{"cfn", "CloudFormation"},
	{"cloudformation", "CloudFormation"},
	{"cloudwatch", "CloudWatch"},
	{"iam", "IAM"},
	{"sqs", "SQS"},
	{"sns", "SNS"},
	{"vpc", "VPC"},
	{"rds", "RDS"},
	{"ecs", "ECS"},
	{"eks", "EKS"},
	{"cdk", "CDK"},
	{"apigw", "API Gateway"},
	{"sfn", "Step Functions"},
	{"cloudfront", "CloudFront"},
	{"elasticache", "ElastiCache"},
	{"route53", "Route 53"},
}

// misspellings covers recurring typos of well-known service names.
// This is a fixed table, not a general spellchecker.
var misspellings = []substitution{
	{"dyanmodb", "DynamoDB"},
	{"dynamod", "DynamoDB"},
	{"lamda", "Lambda"},
	{"lambada", "Lambda"},
	{"cloudfomation", "CloudFormation"},
	{"cloudformtion", "CloudFormation"},
	{"kineses", "Kinesis"},
	{"claudwatch", "CloudWatch"},
}
