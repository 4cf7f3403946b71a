package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/venue_backend/config"
)

/* DB fetching */

// fetch model from db
// (ctx's venue_id is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, venueId string, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("venue_id = ?", venueId)
	// preloading
	for _, field := range associations {
		dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// fetch all models from db
// (ctx's venue_id is used in query's WHERE)
func FetchAllModels[T any](ctx context.Context, venueId string, associations ...string) ([]*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("venue_id = ?", venueId)
	// preloading
	for _, field := range associations {
		dbCtx.Preload(field)
	}
	var results []*T
	err := dbCtx.Find(&results).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return results, nil
}

// count records, using WHERE venue_id = ? AND $condition
func ResourceCountWhere[T any](ctx context.Context, venueId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if venueId != "" {
		dbCtx.Where("venue_id = ?", venueId)
	}
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// check if id exists, using ctx's venue_id in WHERE, return RecordNotFound Error
func ValidateResourceId[T any](ctx context.Context, venueId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, venueId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// check if ALL ids exist, using ctx's venue_id in WHERE, return RecordNotFound Error
func ValidateResourcesId[M any, ID comparable](ctx context.Context, venueId string, ids []ID) error {
	unqIds := UniqueSlice(ids)

	count, err := ResourceCountWhere[M](ctx, venueId, "id IN ?", unqIds)
	if err != nil {
		return err
	}
	if count != int64(len(unqIds)) {
		return ErrorRecordNotFound
	}

	return nil
}
