// Package lexicon holds the static AWS service table and domain keyword list
// shared by the validator and the classifier. The tables are plain data so
// they can be extended and tested independently of the matching algorithm.
package lexicon

import (
	"regexp"
	"sort"
	"strings"
)

// Entry maps a canonical AWS service identity to its aliases and short code.
type Entry struct {
	Name     string // canonical name, e.g. "DynamoDB"
	Code     string // short code, e.g. "ddb"
	Category string
	Aliases  []string
}

// MatchKind orders match specificity: full name > alias > code.
type MatchKind int

const (
	MatchName MatchKind = iota
	MatchAlias
	MatchCode
)

// Match is one service mention found in a text.
type Match struct {
	Entry    Entry
	Kind     MatchKind
	Text     string // the substring that matched
	Position int    // byte offset in the scanned text
	Context  string // window around the match
}

// Services is the AWS service table. Matching is word-boundary,
// case-insensitive, against name, aliases, and code.
var Services = []Entry{
	{Name: "S3", Code: "s3", Category: "storage", Aliases: []string{"simple storage service"}},
	{Name: "EC2", Code: "ec2", Category: "compute", Aliases: []string{"elastic compute cloud"}},
	{Name: "Lambda", Code: "lambda", Category: "compute"},
	{Name: "DynamoDB", Code: "ddb", Category: "database", Aliases: []string{"dynamo db", "dynamo"}},
	{Name: "RDS", Code: "rds", Category: "database", Aliases: []string{"relational database service"}},
	{Name: "Aurora", Code: "aurora", Category: "database"},
	{Name: "ElastiCache", Code: "elasticache", Category: "database", Aliases: []string{"elastic cache"}},
	{Name: "Redshift", Code: "redshift", Category: "analytics"},
	{Name: "Athena", Code: "athena", Category: "analytics"},
	{Name: "Glue", Code: "glue", Category: "analytics"},
	{Name: "Kinesis", Code: "kinesis", Category: "analytics"},
	{Name: "CloudFormation", Code: "cfn", Category: "management", Aliases: []string{"cloud formation"}},
	{Name: "CDK", Code: "cdk", Category: "management", Aliases: []string{"cloud development kit"}},
	{Name: "CloudWatch", Code: "cw", Category: "management", Aliases: []string{"cloud watch"}},
	{Name: "IAM", Code: "iam", Category: "security", Aliases: []string{"identity and access management"}},
	{Name: "KMS", Code: "kms", Category: "security", Aliases: []string{"key management service"}},
	{Name: "Cognito", Code: "cognito", Category: "security"},
	{Name: "Secrets Manager", Code: "secretsmanager", Category: "security"},
	{Name: "SQS", Code: "sqs", Category: "messaging", Aliases: []string{"simple queue service"}},
	{Name: "SNS", Code: "sns", Category: "messaging", Aliases: []string{"simple notification service"}},
	{Name: "EventBridge", Code: "eventbridge", Category: "application", Aliases: []string{"event bridge"}},
	{Name: "Step Functions", Code: "sfn", Category: "application", Aliases: []string{"step function"}},
	{Name: "API Gateway", Code: "apigw", Category: "networking", Aliases: []string{"apigateway"}},
	{Name: "CloudFront", Code: "cloudfront", Category: "networking", Aliases: []string{"cloud front"}},
	{Name: "Route 53", Code: "r53", Category: "networking", Aliases: []string{"route53"}},
	{Name: "VPC", Code: "vpc", Category: "networking", Aliases: []string{"virtual private cloud"}},
	{Name: "ECS", Code: "ecs", Category: "containers", Aliases: []string{"elastic container service"}},
	{Name: "EKS", Code: "eks", Category: "containers", Aliases: []string{"elastic kubernetes service"}},
	{Name: "Fargate", Code: "fargate", Category: "containers"},
	{Name: "Elastic Beanstalk", Code: "eb", Category: "compute", Aliases: []string{"beanstalk"}},
}

// Keywords are AWS-adjacent terms used for domain-signal detection when no
// service name matched.
var Keywords = []string{
	"aws", "amazon web services", "bucket", "instance", "serverless",
	"arn", "region", "availability zone", "cloudtrail", "amplify",
	"sagemaker", "bedrock", "free tier", "root account",
}

const contextWindow = 30

type compiledEntry struct {
	entry Entry
	re    *regexp.Regexp
	kinds map[string]MatchKind // lowercased matched text -> kind
}

var compiled = compileServices()

func compileServices() []compiledEntry {
	out := make([]compiledEntry, 0, len(Services))
	for _, e := range Services {
		kinds := map[string]MatchKind{strings.ToLower(e.Name): MatchName}
		patterns := []string{regexp.QuoteMeta(e.Name)}
		for _, a := range e.Aliases {
			patterns = append(patterns, regexp.QuoteMeta(a))
			kinds[strings.ToLower(a)] = MatchAlias
		}
		if e.Code != "" && !strings.EqualFold(e.Code, e.Name) {
			patterns = append(patterns, regexp.QuoteMeta(e.Code))
			kinds[strings.ToLower(e.Code)] = MatchCode
		}
		re := regexp.MustCompile(`(?i)\b(` + strings.Join(patterns, "|") + `)\b`)
		out = append(out, compiledEntry{entry: e, re: re, kinds: kinds})
	}
	return out
}

// FindServices scans text for service mentions, ordered by position.
// Multiple mentions of the same service are all returned; callers merge.
func FindServices(text string) []Match {
	var matches []Match
	for _, ce := range compiled {
		for _, loc := range ce.re.FindAllStringIndex(text, -1) {
			matched := text[loc[0]:loc[1]]
			kind, ok := ce.kinds[strings.ToLower(matched)]
			if !ok {
				// Case variant of the canonical name (e.g. "lambda").
				kind = MatchName
			}
			matches = append(matches, Match{
				Entry:    ce.entry,
				Kind:     kind,
				Text:     matched,
				Position: loc[0],
				Context:  window(text, loc[0], loc[1]),
			})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Position < matches[j].Position })
	return matches
}

// HasAWSSignal reports whether text mentions any known service or
// AWS-adjacent keyword.
func HasAWSSignal(text string) bool {
	if len(FindServices(text)) > 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range Keywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}

func window(text string, start, end int) string {
	from := start - contextWindow
	if from < 0 {
		from = 0
	}
	to := end + contextWindow
	if to > len(text) {
		to = len(text)
	}
	return strings.TrimSpace(text[from:to])
}

// containsWord checks a word-boundary substring match on lowercased input.
func containsWord(lower, word string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordByte(lower[i-1])
		afterIdx := i + len(word)
		after := afterIdx == len(lower) || !isWordByte(lower[afterIdx])
		if before && after {
			return true
		}
		idx = i + len(word)
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
