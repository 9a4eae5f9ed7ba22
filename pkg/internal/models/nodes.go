package models

// Node is a registered federation peer together with the outbound
// credentials this node presents when calling it.
type Node struct {
	BaseModel

	Host             string `json:"host" gorm:"uniqueIndex"`
	OutgoingUsername string `json:"outgoing_username"`
	OutgoingPassword string `json:"-"`
}
