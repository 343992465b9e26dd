// internal/workers/notifications/cleanup-push-tokens/models.go
package cleanuppushtokens

type Output struct {
	Cleared int `json:"cleared"`
	Failed  int `json:"failed"`
}
