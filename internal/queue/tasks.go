package queue

import "encoding/json"

// FollowRequestTaskType is consumed by the social-graph worker. Requesting
// a follow-back is the only side effect messaging emits into the graph.
const FollowRequestTaskType = "social:follow_request"

type FollowRequestPayload struct {
	RequesterID int64 `json:"requester_id"`
	TargetID    int64 `json:"target_id"`
}

func NewFollowRequestTask(requesterID, targetID int64) (Task, error) {
	payload, err := json.Marshal(FollowRequestPayload{
		RequesterID: requesterID,
		TargetID:    targetID,
	})
	if err != nil {
		return Task{}, err
	}
	return Task{Type: FollowRequestTaskType, Payload: payload}, nil
}
