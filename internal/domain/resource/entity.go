package resource

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyResourceName   = errors.New("resource name cannot be empty")
	ErrResourceNameTooLong = errors.New("resource name is too long (max 255 characters)")
	ErrNegativePrice       = errors.New("resource price cannot be negative")
	ErrInvalidKind         = errors.New("invalid resource kind")
)

const (
	MaxResourceNameLength = 255
)

type Kind string

const (
	KindVenue   Kind = "VENUE"
	KindService Kind = "SERVICE"
	KindEvent   Kind = "EVENT"
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) IsValid() bool {
	switch k {
	case KindVenue, KindService, KindEvent:
		return true
	default:
		return false
	}
}

func NewKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// Resource is a bookable entity with exclusive occupancy per time
// window. Attributes are immutable for the duration of a booking
// decision; mutation belongs to the owning provider, outside this core.
type Resource struct {
	id          uuid.UUID
	kind        Kind
	name        string
	providerID  uuid.UUID
	hourlyCents int64
	currency    string
	createdAt   time.Time
	updatedAt   time.Time
}

func NewResource(id uuid.UUID, kind Kind, name string, providerID uuid.UUID, hourlyCents int64, currency string) (*Resource, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if err := validateResourceName(name); err != nil {
		return nil, err
	}
	if hourlyCents < 0 {
		return nil, ErrNegativePrice
	}

	return &Resource{
		id:          id,
		kind:        kind,
		name:        strings.TrimSpace(name),
		providerID:  providerID,
		hourlyCents: hourlyCents,
		currency:    currency,
	}, nil
}

func validateResourceName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyResourceName
	}
	if len(name) > MaxResourceNameLength {
		return ErrResourceNameTooLong
	}
	return nil
}

func (r *Resource) ID() uuid.UUID         { return r.id }
func (r *Resource) Kind() Kind            { return r.kind }
func (r *Resource) Name() string          { return r.name }
func (r *Resource) ProviderID() uuid.UUID { return r.providerID }
func (r *Resource) HourlyCents() int64    { return r.hourlyCents }
func (r *Resource) Currency() string      { return r.currency }
func (r *Resource) CreatedAt() time.Time  { return r.createdAt }
func (r *Resource) UpdatedAt() time.Time  { return r.updatedAt }
