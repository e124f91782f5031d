package dto

// NegotiateResponse carries the transport connection URL and the credential
// a client presents on upgrade. Field names match what the client library
// and the browser front end expect.
type NegotiateResponse struct {
	Url         string `json:"url"`
	AccessToken string `json:"accessToken"`
}

type SessionExistsResponse struct {
	Exists bool `json:"exists"`
}

type IngestResponse struct {
	SessionId string `json:"sessionId"`
}
