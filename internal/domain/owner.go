package domain

import (
	"fmt"
	"strings"
)

// OwnerKind identifies the hierarchy level a balance belongs to.
type OwnerKind string

const (
	OwnerKindMission  OwnerKind = "MISSION"
	OwnerKindArea     OwnerKind = "AREA"
	OwnerKindDistrict OwnerKind = "DISTRICT"
	OwnerKindBranch   OwnerKind = "BRANCH"
	OwnerKindMember   OwnerKind = "MEMBER"
)

// IsValid reports whether k is one of the known owner kinds.
func (k OwnerKind) IsValid() bool {
	switch k {
	case OwnerKindMission, OwnerKindArea, OwnerKindDistrict, OwnerKindBranch, OwnerKindMember:
		return true
	}
	return false
}

// Owner is a reference to exactly one financial actor: the Mission singleton,
// or an Area, District, Branch or Member by id. The zero value is "no owner"
// and is used for entries without a counterparty.
//
// Owner is comparable and can be used as a map key.
type Owner struct {
	kind OwnerKind
	id   string
}

// Mission returns the Mission singleton.
func Mission() Owner { return Owner{kind: OwnerKindMission} }

// Area returns an Area owner.
func Area(id string) Owner { return Owner{kind: OwnerKindArea, id: id} }

// District returns a District owner.
func District(id string) Owner { return Owner{kind: OwnerKindDistrict, id: id} }

// Branch returns a Branch owner.
func Branch(id string) Owner { return Owner{kind: OwnerKindBranch, id: id} }

// Member returns a Member owner.
func Member(id string) Owner { return Owner{kind: OwnerKindMember, id: id} }

// NewOwner builds an owner from its persisted kind and id.
func NewOwner(kind OwnerKind, id string) (Owner, error) {
	id = strings.TrimSpace(id)

	switch kind {
	case OwnerKindMission:
		if id != "" {
			return Owner{}, fmt.Errorf("%w: mission takes no id", ErrInvalidOwner)
		}
		return Mission(), nil
	case OwnerKindArea, OwnerKindDistrict, OwnerKindBranch, OwnerKindMember:
		if id == "" {
			return Owner{}, fmt.Errorf("%w: %s requires an id", ErrInvalidOwner, strings.ToLower(string(kind)))
		}
		if strings.ContainsAny(id, ": ") {
			return Owner{}, fmt.Errorf("%w: id %q contains forbidden characters", ErrInvalidOwner, id)
		}
		return Owner{kind: kind, id: id}, nil
	default:
		return Owner{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidOwner, kind)
	}
}

// ParseOwner parses the textual form produced by String: "mission" or "<kind>:<id>".
func ParseOwner(s string) (Owner, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "mission") {
		return Mission(), nil
	}

	kind, id, ok := strings.Cut(s, ":")
	if !ok {
		return Owner{}, fmt.Errorf("%w: %q", ErrInvalidOwner, s)
	}

	return NewOwner(OwnerKind(strings.ToUpper(kind)), id)
}

// Kind returns the owner's hierarchy level.
func (o Owner) Kind() OwnerKind { return o.kind }

// ID returns the owner id; empty for Mission.
func (o Owner) ID() string { return o.id }

// IsZero reports whether o references nothing.
func (o Owner) IsZero() bool { return o.kind == "" }

// IsMission reports whether o is the Mission singleton.
func (o Owner) IsMission() bool { return o.kind == OwnerKindMission }

// String returns "mission" or "<kind>:<id>" in lower case kind.
func (o Owner) String() string {
	switch o.kind {
	case "":
		return ""
	case OwnerKindMission:
		return "mission"
	default:
		return strings.ToLower(string(o.kind)) + ":" + o.id
	}
}

// MarshalText implements encoding.TextMarshaler so owners can key JSON maps.
func (o Owner) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Owner) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*o = Owner{}
		return nil
	}
	parsed, err := ParseOwner(string(b))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Validate checks that o references exactly one actor.
func (o Owner) Validate() error {
	_, err := NewOwner(o.kind, o.id)
	return err
}
