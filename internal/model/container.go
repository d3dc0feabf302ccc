package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is returned by Validate for records that must not be persisted.
var ErrInvalid = errors.New("invalid container")

// PieceCount: количество единиц определённого типа упаковки.
type PieceCount struct {
	Quantity    int         `json:"quantity"`
	PackageType PackageType `json:"packageType"`
}

// Discrepancy: зафиксированное расхождение по контейнеру.
type Discrepancy struct {
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	PhotoPaths  []string  `json:"photoPaths,omitempty"`
}

// Container - the only persisted entity: one intake/export record.
type Container struct {
	ID                string         `json:"id"`
	ContainerNumber   string         `json:"containerNumber"`
	Type              ContainerType  `json:"type"`
	PieceCounts       []PieceCount   `json:"pieceCounts"`
	MaterialsSupplied []MaterialType `json:"materialsSupplied"`
	Discrepancies     []Discrepancy  `json:"discrepancies"`
	PhotoPaths        []string       `json:"photoPaths"`
	DoorNumber        string         `json:"doorNumber,omitempty"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"`
	ShareableLink     string         `json:"shareableLink,omitempty"`
	IsCompleted       bool           `json:"isCompleted"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// New builds a fresh, not yet completed container stamped with now.
func New(id, number string, typ ContainerType, door string, now time.Time) Container {
	return Container{
		ID:                id,
		ContainerNumber:   strings.TrimSpace(number),
		Type:              typ,
		PieceCounts:       []PieceCount{},
		MaterialsSupplied: []MaterialType{},
		Discrepancies:     []Discrepancy{},
		PhotoPaths:        []string{},
		DoorNumber:        strings.TrimSpace(door),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// HasDiscrepancies reports whether at least one discrepancy was recorded.
func (c Container) HasDiscrepancies() bool { return len(c.Discrepancies) > 0 }

// Validate checks the fields an operator must get right before the record is stored.
func (c Container) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalid)
	}
	if strings.TrimSpace(c.ContainerNumber) == "" {
		return fmt.Errorf("%w: container number is required", ErrInvalid)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalid, c.Type)
	}
	for i, pc := range c.PieceCounts {
		if pc.Quantity <= 0 {
			return fmt.Errorf("%w: piece count #%d must be positive, got %d", ErrInvalid, i+1, pc.Quantity)
		}
		if !pc.PackageType.Valid() {
			return fmt.Errorf("%w: piece count #%d has unknown package %q", ErrInvalid, i+1, pc.PackageType)
		}
	}
	for _, m := range c.MaterialsSupplied {
		if !m.Valid() {
			return fmt.Errorf("%w: unknown material %q", ErrInvalid, m)
		}
	}
	if c.IsCompleted && (c.CompletedAt == nil || c.ShareableLink == "") {
		return fmt.Errorf("%w: completed container needs completedAt and shareableLink", ErrInvalid)
	}
	return nil
}

// Clone returns a deep copy; slices and the completion time are not shared.
func (c Container) Clone() Container {
	out := c
	out.PieceCounts = append([]PieceCount{}, c.PieceCounts...)
	out.MaterialsSupplied = append([]MaterialType{}, c.MaterialsSupplied...)
	out.PhotoPaths = append([]string{}, c.PhotoPaths...)
	out.Discrepancies = make([]Discrepancy, len(c.Discrepancies))
	for i, d := range c.Discrepancies {
		d.PhotoPaths = append([]string(nil), d.PhotoPaths...)
		out.Discrepancies[i] = d
	}
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// SetMaterials replaces the materials set, dropping duplicates while keeping first-seen order.
func (c *Container) SetMaterials(ms []MaterialType) {
	seen := make(map[MaterialType]struct{}, len(ms))
	out := make([]MaterialType, 0, len(ms))
	for _, m := range ms {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	c.MaterialsSupplied = out
}

// MovePhoto moves the photo at index from to index to, shifting the others.
func (c *Container) MovePhoto(from, to int) error {
	n := len(c.PhotoPaths)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("photo index out of range: from=%d to=%d (have %d)", from, to, n)
	}
	if from == to {
		return nil
	}
	p := c.PhotoPaths[from]
	rest := append(append([]string{}, c.PhotoPaths[:from]...), c.PhotoPaths[from+1:]...)
	out := make([]string, 0, n)
	out = append(out, rest[:to]...)
	out = append(out, p)
	out = append(out, rest[to:]...)
	c.PhotoPaths = out
	return nil
}

// RemovePhoto drops the photo reference at index i and returns it.
func (c *Container) RemovePhoto(i int) (string, error) {
	if i < 0 || i >= len(c.PhotoPaths) {
		return "", fmt.Errorf("photo index out of range: %d (have %d)", i, len(c.PhotoPaths))
	}
	p := c.PhotoPaths[i]
	c.PhotoPaths = append(append([]string{}, c.PhotoPaths[:i]...), c.PhotoPaths[i+1:]...)
	return p, nil
}
