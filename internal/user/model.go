package user

type OnlineResponse struct {
	Users []string `json:"users"`
}

type ConversationsResponse struct {
	Username string   `json:"username"`
	Peers    []string `json:"peers"`
}

type TranscriptResponse struct {
	Conversation string   `json:"conversation"`
	Lines        []string `json:"lines"`
}
