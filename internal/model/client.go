package model

// Client is a firm client record. PartnerID, when set, must reference an
// existing Employee.
type Client struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Email           string   `json:"email"`
	Mobile          string   `json:"mobile"`
	Address         string   `json:"address"`
	PartnerID       string   `json:"partnerId,omitempty"`
	FirmID          string   `json:"firmId,omitempty"`
	LinkedClientIDs []string `json:"linkedClientIds,omitempty"`
}
