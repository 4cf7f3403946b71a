package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/venue_backend/utils"
)

// Bar is an assignment destination inside a venue (a serving point during events).
type Bar struct {
	ID        int       `gorm:"primary_key" json:"id"`
	VenueId   string    `gorm:"index;not null" json:"venue_id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Location  string    `gorm:"size:100" json:"location"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetBar(ctx context.Context, venueId string, id int) (*Bar, error) {
	return utils.FetchModel[Bar](ctx, venueId, id)
}

func GetActiveBars(ctx context.Context, venueId string) ([]*Bar, error) {
	bars, err := utils.FetchAllModels[Bar](ctx, venueId)
	if err != nil {
		return nil, err
	}
	active := make([]*Bar, 0, len(bars))
	for _, b := range bars {
		if b.IsActive == nil || *b.IsActive {
			active = append(active, b)
		}
	}
	return active, nil
}

// GetBars fetches the requested bar ids, erroring when any id is missing
// for the venue. Order of the result follows the requested ids.
func GetBars(ctx context.Context, venueId string, ids []int) ([]*Bar, error) {
	if err := utils.ValidateResourcesId[Bar](ctx, venueId, ids); err != nil {
		return nil, err
	}
	all, err := utils.FetchAllModels[Bar](ctx, venueId)
	if err != nil {
		return nil, err
	}
	byId := make(map[int]*Bar, len(all))
	for _, b := range all {
		byId[b.ID] = b
	}
	bars := make([]*Bar, 0, len(ids))
	for _, id := range utils.UniqueSlice(ids) {
		if b, ok := byId[id]; ok {
			bars = append(bars, b)
		}
	}
	return bars, nil
}
