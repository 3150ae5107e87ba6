package classify

import (
	"regexp"

	"github.com/askaws-cloud/askaws/internal/domain"
)

// typeKeywords maps each question type to the phrases that vote for it.
// Phrases are matched case-insensitively with word boundaries; each hit
// scores one point. Plain data so the tables can be extended without
// touching the scoring algorithm.
var typeKeywords = map[domain.QuestionType][]string{
	domain.TypeTroubleshooting: {
		"error", "errors", "fails", "failed", "failing", "timeout", "timed out",
		"exception", "not working", "doesn't work", "does not work", "broken",
		"crash", "crashes", "denied", "unable to", "troubleshoot", "stuck",
		"403", "500", "throttled",
	},
	domain.TypeHowTo: {
		"how do i", "how to", "how can i", "steps", "step by step", "create",
		"set up", "setup", "configure", "guide", "tutorial", "walkthrough",
		"enable", "deploy",
	},
	domain.TypeComparison: {
		"difference between", "vs", "versus", "compare", "comparison",
		"better than", "should i use", "pros and cons",
	},
	domain.TypeConceptual: {
		"what is", "what are", "explain", "meaning", "definition", "overview",
		"understand", "why does", "how does",
	},
	domain.TypePricing: {
		"cost", "costs", "price", "pricing", "billing", "charge", "charged",
		"free tier", "expensive", "budget",
	},
	domain.TypeSecurity: {
		"security", "secure", "encryption", "encrypt", "encrypted",
		"permission", "permissions", "policy", "policies", "access control",
		"vulnerability", "compliance", "least privilege",
	},
	domain.TypePerformance: {
		"performance", "slow", "latency", "throughput", "optimize",
		"optimization", "scaling", "scale", "faster", "bottleneck", "cold start",
	},
	domain.TypeIntegration: {
		"integrate", "integration", "connect", "webhook", "trigger",
		"event-driven", "pipeline", "stream to", "invoke from",
	},
	domain.TypeTechnical: {
		"api", "sdk", "cli", "endpoint", "parameter", "payload", "request",
		"response", "boto3", "terraform", "yaml", "json",
	},
}

// technicalPatterns detect code-like tokens that vote for the technical type
// beyond plain keywords: CLI invocations, flags, camelCase API names, and
// inline code spans.
var technicalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\baws [a-z0-9-]+ [a-z0-9-]+`), // aws s3 cp, aws ec2 describe-instances
	regexp.MustCompile(`--[a-z][a-z0-9-]+`),         // --bucket-name
	regexp.MustCompile(`\b[a-z]+[A-Z][a-zA-Z]{2,}`), // putObject, getItem
	regexp.MustCompile("`[^`]+`"),                   // inline code span
}

// defaultTypePriority breaks keyword-score ties. Operational intent is the
// highest value to detect correctly, so troubleshooting and howto lead.
// Overridable via configuration.
var defaultTypePriority = []domain.QuestionType{
	domain.TypeTroubleshooting,
	domain.TypeHowTo,
	domain.TypeTechnical,
	domain.TypeComparison,
	domain.TypeConceptual,
	domain.TypePricing,
	domain.TypeSecurity,
	domain.TypePerformance,
	domain.TypeIntegration,
}

// typeTopics maps each question type to its ordered search topics.
var typeTopics = map[domain.QuestionType][]domain.Topic{
	domain.TypeTroubleshooting: {domain.TopicTroubleshooting, domain.TopicReference},
	domain.TypeHowTo:           {domain.TopicGeneral, domain.TopicReference},
	domain.TypeTechnical:       {domain.TopicAPI, domain.TopicReference},
	domain.TypeComparison:      {domain.TopicGeneral, domain.TopicBestPractices},
	domain.TypeConceptual:      {domain.TopicGeneral, domain.TopicReference},
	domain.TypePricing:         {domain.TopicPricing, domain.TopicGeneral},
	domain.TypeSecurity:        {domain.TopicSecurity, domain.TopicBestPractices},
	domain.TypePerformance:     {domain.TopicBestPractices, domain.TopicReference},
	domain.TypeIntegration:     {domain.TopicGeneral, domain.TopicAPI},
}

// serviceTopics appends a specialized topic when a matching service is detected.
var serviceTopics = map[string]domain.Topic{
	"CloudFormation": domain.TopicCloudFormation,
	"CDK":            domain.TopicCDK,
}
