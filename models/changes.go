package models

// Direction tells which way a replicated change travelled.
type Direction string

const (
	// Push is a change written by the local peer travelling to remote peers.
	Push Direction = "push"
	// Pull is a change written elsewhere arriving at the local peer.
	Pull Direction = "pull"
)

// Changeset is a batch of change entries delivered by a change subscription.
// Docs holds live documents and tombstones (Deleted set, usually no Kind).
type Changeset struct {
	Direction Direction  `json:"direction"`
	Docs      []Document `json:"docs"`
}

// ChangeBatch is what a store publishes for one successful write call.
// Origin is the peer that issued the write.
type ChangeBatch struct {
	Origin string
	Docs   []Document
}

// For returns the changeset observed by peerID: its own writes are push,
// everything else is pull.
func (b ChangeBatch) For(peerID string) Changeset {
	direction := Pull
	if peerID != "" && b.Origin == peerID {
		direction = Push
	}

	return Changeset{Direction: direction, Docs: b.Docs}
}
