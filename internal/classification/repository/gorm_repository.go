package repository

import (
	"errors"
	"strings"
	"time"

	"inboxpilot-backend/internal/classification/domain"

	"gorm.io/gorm"
)

// filterColumns whitelists the filterable columns and maps them to SQL
var filterColumns = map[string]string{
	"subject":  "emails.subject",
	"sender":   "emails.sender",
	"category": "classifications.category",
	"urgency":  "classifications.urgency",
	"action":   "classifications.action",
}

// sortColumns whitelists the sortable columns and maps them to SQL
var sortColumns = map[string]string{
	"id":            "classifications.id",
	"subject":       "emails.subject",
	"sender":        "emails.sender",
	"category":      "classifications.category",
	"urgency":       "classifications.urgency",
	"action":        "classifications.action",
	"confidence":    "classifications.confidence",
	"classified_at": "classifications.classified_at",
}

// errStaleWrite signals a zero-row conditional update inside the transaction
var errStaleWrite = errors.New("stale write")

// gormClassificationRepository implements ClassificationRepository
type gormClassificationRepository struct {
	db *gorm.DB
}

// NewClassificationRepository creates a new instance of gormClassificationRepository
func NewClassificationRepository(db *gorm.DB) ClassificationRepository {
	return &gormClassificationRepository{
		db: db,
	}
}

// escapeLike makes filter text a literal substring, never a pattern
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (r *gormClassificationRepository) listQuery(filters map[string]string) *gorm.DB {
	query := r.db.Model(&domain.Classification{}).
		Joins("JOIN emails ON emails.id = classifications.email_id")

	for column, value := range filters {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		sqlColumn, ok := filterColumns[column]
		if !ok {
			continue
		}
		needle := "%" + escapeLike(strings.ToLower(value)) + "%"
		query = query.Where("LOWER("+sqlColumn+") LIKE ? ESCAPE '\\'", needle)
	}
	return query
}

func (r *gormClassificationRepository) List(params ListParams) ([]*domain.Classification, int64, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 25
	}

	query := r.listQuery(params.Filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &domain.RemoteQueryError{Op: "count classifications", Err: err}
	}

	sortColumn, ok := sortColumns[params.SortBy]
	if !ok {
		sortColumn = "classifications.classified_at"
	}
	direction := "DESC"
	if strings.EqualFold(params.SortDir, "asc") {
		direction = "ASC"
	}

	var rows []*domain.Classification
	err := query.Preload("Email").
		Order(sortColumn + " " + direction + ", classifications.id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, &domain.RemoteQueryError{Op: "list classifications", Err: err}
	}

	return rows, total, nil
}

func (r *gormClassificationRepository) GetByID(id int64) (*domain.Classification, error) {
	var record domain.Classification
	err := r.db.Preload("Email").Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.RemoteQueryError{Op: "get classification", Err: err}
	}
	return &record, nil
}

func (r *gormClassificationRepository) UpdateVersioned(id int64, expectedVersion int, updates domain.FieldUpdates, correctedBy, reason, source string) (*domain.Classification, error) {
	prev, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if prev.Version != expectedVersion {
		return nil, &domain.VersionConflictError{Current: prev}
	}

	now := time.Now()
	columns := map[string]interface{}{
		"version":           gorm.Expr("version + 1"),
		"corrected_at":      now,
		"corrected_by":      correctedBy,
		"correction_reason": reason,
		"updated_at":        now,
	}
	for field, value := range updates {
		columns[field] = value
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		// The version guard makes the write conditional: zero rows affected
		// means the record moved past expectedVersion concurrently.
		result := tx.Model(&domain.Classification{}).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(columns)
		if result.Error != nil {
			return &domain.RemoteQueryError{Op: "update classification", Err: result.Error}
		}
		if result.RowsAffected == 0 {
			return errStaleWrite
		}

		for field, newValue := range updates {
			oldValue := prev.FieldValue(field)
			if oldValue == newValue {
				continue
			}
			correction := &domain.Correction{
				ClassificationID: id,
				Field:            field,
				OldValue:         oldValue,
				NewValue:         newValue,
				CorrectedBy:      correctedBy,
				Reason:           reason,
				Source:           source,
				CreatedAt:        now,
			}
			if err := tx.Create(correction).Error; err != nil {
				return &domain.RemoteQueryError{Op: "record correction", Err: err}
			}
		}
		return nil
	})

	if errors.Is(err, errStaleWrite) {
		current, getErr := r.GetByID(id)
		if getErr != nil {
			// Row vanished between the write and the re-read
			return nil, getErr
		}
		return nil, &domain.VersionConflictError{Current: current}
	}
	if err != nil {
		return nil, err
	}

	return r.GetByID(id)
}

func (r *gormClassificationRepository) CreateWithEmail(email *domain.Email, classification *domain.Classification) error {
	now := time.Now()
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = now
	}
	email.CreatedAt = now

	classification.Version = 1
	if classification.ClassifiedAt.IsZero() {
		classification.ClassifiedAt = now
	}
	classification.CreatedAt = now
	classification.UpdatedAt = now

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(email).Error; err != nil {
			return err
		}
		classification.EmailID = email.ID
		return tx.Create(classification).Error
	})
	if err != nil {
		return &domain.RemoteQueryError{Op: "create classification", Err: err}
	}

	classification.Email = email
	return nil
}

func (r *gormClassificationRepository) CorrectionsFor(classificationID int64) ([]*domain.Correction, error) {
	var corrections []*domain.Correction
	err := r.db.Where("classification_id = ?", classificationID).
		Order("created_at DESC, id DESC").
		Find(&corrections).Error
	if err != nil {
		return nil, &domain.RemoteQueryError{Op: "list corrections", Err: err}
	}
	return corrections, nil
}

func (r *gormClassificationRepository) Stats() (*domain.Stats, error) {
	stats := &domain.Stats{
		ByCategory: make(map[string]int64),
		ByUrgency:  make(map[string]int64),
		ByAction:   make(map[string]int64),
	}

	model := func() *gorm.DB { return r.db.Model(&domain.Classification{}) }

	if err := model().Count(&stats.Total).Error; err != nil {
		return nil, &domain.RemoteQueryError{Op: "stats total", Err: err}
	}
	if err := model().Where("corrected_at IS NOT NULL").Count(&stats.Corrected).Error; err != nil {
		return nil, &domain.RemoteQueryError{Op: "stats corrected", Err: err}
	}
	if err := r.db.Model(&domain.Correction{}).Count(&stats.CorrectionEvents).Error; err != nil {
		return nil, &domain.RemoteQueryError{Op: "stats correction events", Err: err}
	}
	if err := model().Select("COALESCE(AVG(confidence), 0)").Scan(&stats.AvgConfidence).Error; err != nil {
		return nil, &domain.RemoteQueryError{Op: "stats avg confidence", Err: err}
	}

	buckets := []struct {
		dest  *int64
		where string
		args  []interface{}
	}{
		{&stats.ConfidenceBelow50, "confidence < ?", []interface{}{50}},
		{&stats.Confidence50To70, "confidence >= ? AND confidence < ?", []interface{}{50, 70}},
		{&stats.Confidence70To90, "confidence >= ? AND confidence < ?", []interface{}{70, 90}},
		{&stats.Confidence90Plus, "confidence >= ?", []interface{}{90}},
	}
	for _, bucket := range buckets {
		if err := model().Where(bucket.where, bucket.args...).Count(bucket.dest).Error; err != nil {
			return nil, &domain.RemoteQueryError{Op: "stats confidence buckets", Err: err}
		}
	}

	groups := []struct {
		column string
		dest   map[string]int64
	}{
		{"category", stats.ByCategory},
		{"urgency", stats.ByUrgency},
		{"action", stats.ByAction},
	}
	for _, group := range groups {
		var rows []struct {
			Key   string
			Count int64
		}
		err := model().Select(group.column + " AS key, COUNT(*) AS count").
			Group(group.column).
			Scan(&rows).Error
		if err != nil {
			return nil, &domain.RemoteQueryError{Op: "stats by " + group.column, Err: err}
		}
		for _, row := range rows {
			group.dest[row.Key] = row.Count
		}
	}

	return stats, nil
}
