package model

// CampaignInfo is the public description of the campaign a token or slug belongs to
type CampaignInfo struct {
	Name         string                   `json:"name"`
	CompanyName  string                   `json:"company_name"`
	ContactName  string                   `json:"contact_name,omitempty"`
	ContactEmail string                   `json:"contact_email,omitempty"`
	InfoURL      string                   `json:"info_url,omitempty"`
	Workplaces   []map[string]interface{} `json:"workplaces,omitempty"`
}
