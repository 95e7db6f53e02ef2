package models

import (
	"time"

	"github.com/google/uuid"
)

// UnitAttributes holds the domain fields shared by staged and canonical units.
type UnitAttributes struct {
	Name        string  `json:"name" db:"name"`
	UnitType    string  `json:"unit_type" db:"unit_type"`
	Technology  string  `json:"technology" db:"technology"`
	Chassis     string  `json:"chassis" db:"chassis"`
	Era         string  `json:"era" db:"era"`
	Year        int     `json:"year" db:"year"`
	RulesLevel  string  `json:"rules_level" db:"rules_level"`
	Tonnage     float64 `json:"tonnage" db:"tonnage"`
	BattleValue int     `json:"battle_value" db:"battle_value"`
	PointValue  int     `json:"point_value" db:"point_value"`
	Cost        *int64  `json:"cost,omitempty" db:"cost"`
	Rating      *string `json:"rating,omitempty" db:"rating"`
	Designer    *string `json:"designer,omitempty" db:"designer"`
}

// StagedUnit is an ingested record waiting for an administrator to review it.
type StagedUnit struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ExternalID int64     `json:"external_id" db:"external_id"`
	UnitAttributes
	Validated bool      `json:"validated" db:"validated"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CanonicalUnit is the system-of-record unit promoted from a validated StagedUnit.
// StagedUnitID is a plain reference; removing the staged unit leaves it in place.
type CanonicalUnit struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ExternalID   int64     `json:"external_id" db:"external_id"`
	StagedUnitID uuid.UUID `json:"staged_unit_id" db:"staged_unit_id"`
	UnitAttributes
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewCanonicalUnit copies every domain field of the staged unit.
func NewCanonicalUnit(staged *StagedUnit) *CanonicalUnit {
	return &CanonicalUnit{
		ID:             uuid.New(),
		ExternalID:     staged.ExternalID,
		StagedUnitID:   staged.ID,
		UnitAttributes: staged.UnitAttributes.Clone(),
	}
}

// Clone returns a copy that shares no pointers with the receiver.
func (a UnitAttributes) Clone() UnitAttributes {
	out := a
	if a.Cost != nil {
		v := *a.Cost
		out.Cost = &v
	}
	if a.Rating != nil {
		v := *a.Rating
		out.Rating = &v
	}
	if a.Designer != nil {
		v := *a.Designer
		out.Designer = &v
	}
	return out
}

// ValidationFilter selects staged units by review state.
type ValidationFilter string

const (
	ValidationFilterAll       ValidationFilter = "all"
	ValidationFilterValidated ValidationFilter = "validated"
	ValidationFilterPending   ValidationFilter = "pending"
)

// Validated converts the filter into the flag value to match, nil meaning any.
func (f ValidationFilter) Validated() *bool {
	switch f {
	case ValidationFilterValidated:
		v := true
		return &v
	case ValidationFilterPending:
		v := false
		return &v
	default:
		return nil
	}
}

// SetValidationRequest is the body for changing a staged unit's review state.
type SetValidationRequest struct {
	Validated *bool `json:"validated" validate:"required"`
}

// ListStagedUnitsRequest binds the query string of the staged unit list route.
type ListStagedUnitsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=all validated pending"`
}

// PromotionResult is returned by ValidateAndPromote. CanonicalUnit is nil unless
// a canonical unit was created by this call.
type PromotionResult struct {
	StagedUnit    *StagedUnit    `json:"staged_unit"`
	CanonicalUnit *CanonicalUnit `json:"canonical_unit,omitempty"`
}
