// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectorstore is a schema-based object store with nearest-vector
// queries. Objects belong to a class; a class declares the text
// properties its objects may carry.
package vectorstore

import (
	"context"
	"errors"
	"math"
	"time"
)

var (
	// ErrClassExists is returned when creating a class that already exists.
	ErrClassExists = errors.New("class already exists")

	// ErrClassNotFound is returned when a class does not exist.
	ErrClassNotFound = errors.New("class not found")
)

// Property is one declared property of a class.
type Property struct {
	Name        string `json:"name"`
	DataType    string `json:"data_type"`
	Description string `json:"description,omitempty"`
}

// Class describes a collection of objects.
type Class struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Properties  []Property `json:"properties"`
}

// HasProperty reports whether the class declares name.
func (c Class) HasProperty(name string) bool {
	for _, p := range c.Properties {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Object is one stored item. ID and CreatedAt are assigned on insert.
type Object struct {
	ID         string
	Class      string
	Properties map[string]string
	Vector     []float32
	CreatedAt  time.Time
}

// Match is an object returned by a nearest-vector query.
type Match struct {
	Object
	// Similarity is the certainty of the match, (1+cos)/2 in [0, 1].
	Similarity float64
}

// Store is the vector store contract.
type Store interface {
	ClassExists(ctx context.Context, name string) (bool, error)
	CreateClass(ctx context.Context, class Class) error
	DeleteClass(ctx context.Context, name string) error
	ListClasses(ctx context.Context) ([]Class, error)

	// CreateObjects inserts objs into class in one transaction and
	// returns their IDs in input order. Either every object is stored or
	// none is.
	CreateObjects(ctx context.Context, class string, objs []Object) ([]string, error)

	// NearVector returns up to limit objects of class whose certainty
	// against vec is at least minSimilarity, most similar first. Objects
	// whose dimension differs from vec are skipped.
	NearVector(ctx context.Context, class string, vec []float32, minSimilarity float64, limit int) ([]Match, error)

	Count(ctx context.Context, class string) (int, error)
	Close() error
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either is a zero vector or their lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Certainty maps the cosine similarity of a and b from [-1, 1] onto
// [0, 1]. Orthogonal vectors score 0.5.
func Certainty(a, b []float32) float64 {
	return (1 + CosineSimilarity(a, b)) / 2
}
