package app

import "github.com/moyeora/server/internal/domain"

// Result is the structured outcome of one inbound event. Precondition
// failures are the dominant error path here; they stay soft and never kill
// the connection.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	SpaceID int    `json:"spaceId,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func (r Result) OK() bool { return r.Status == StatusSuccess }

func success(msg string) Result {
	return Result{Status: StatusSuccess, Message: msg}
}

func failure(msg string) Result {
	return Result{Status: StatusError, Message: msg}
}

// userNotFound is the soft failure for events referencing a connection with
// no active session.
func userNotFound() Result {
	return failure("User not found")
}

// ChatMessage is the payload of spaceMessage and layerMessage events.
type ChatMessage struct {
	NickName string `json:"nickName"`
	Message  string `json:"message"`
}

// SignalBody is the payload relayed point-to-point for offer, answer and
// candidate events. Exactly one of SDP/Candidate is set depending on kind.
type SignalBody struct {
	SDP       string        `json:"sdp,omitempty"`
	Candidate string        `json:"candidate,omitempty"`
	Sender    domain.ConnID `json:"sender"`
	Status    string        `json:"status"`
}
