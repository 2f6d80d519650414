package httpx

// Pagination bounds for list endpoints.
const (
	defaultMemberListLimit = 50
	maxMemberListLimit     = 200

	defaultCronRunListLimit = 20
	maxCronRunListLimit     = 200
)

// maxSlackEventBody bounds a single Events API delivery. Slack payloads are far
// smaller; anything larger is rejected before signature verification.
const maxSlackEventBody = 1 << 20

// Slack request headers that are logged but not authenticated.
const (
	headerSlackRetryNum    = "X-Slack-Retry-Num"
	headerSlackRetryReason = "X-Slack-Retry-Reason"
)
