package entity

import (
	"time"
)

// EventRecord is one row of a search result after timezone conversion.
// The optional pointer groups are populated only when the matching
// projection was requested: attendance, location (address/lat/long) and
// organization (name/url/fan count).
type EventRecord struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	DescriptionShort string    `json:"description_short"`
	Description      string    `json:"description"`
	Categories       []string  `json:"categories"`
	ImageURL         *string   `json:"image_url"`
	StartAt          time.Time `json:"start_dt"`
	EndAt            time.Time `json:"end_dt"`

	Attending *bool `json:"attending,omitempty"`

	Address *string  `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Long    *float64 `json:"long,omitempty"`

	OrgName *string `json:"org_name,omitempty"`
	OrgURL  *string `json:"org_url,omitempty"`
	// Always zero. Nothing feeds it anymore, but clients still read it.
	OrgFanCount *int `json:"org_fancount,omitempty"`
}

// PageResult is one page of search results plus the look-ahead flag.
type PageResult struct {
	Items         []EventRecord `json:"items"`
	MoreAvailable bool          `json:"more_available"`
}
