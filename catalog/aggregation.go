package catalog

import (
	"slices"
)

// Stage is one step of an aggregation Pipeline. The set of stages is closed:
// MatchStage, UnwindStage, GroupStage, SortStage and LimitStage.
type Stage interface {
	isStage()
}

// MatchStage keeps only documents matching all Predicates.
type MatchStage struct {
	Predicates []Predicate
}

// UnwindStage emits one document per element of the list Field, with Field holding that element.
// Documents where the list is empty or missing are dropped.
type UnwindStage struct {
	Field FieldNameString
}

// DatePart selects a part of a timestamp group key.
type DatePart string

const (
	WholeValue DatePart = ""
	Month      DatePart = "month"
	Year       DatePart = "year"
)

// GroupKey is the field documents are grouped by, optionally reduced to a DatePart.
// An empty Field groups all documents into one bucket.
type GroupKey struct {
	Field FieldNameString
	Part  DatePart
}

// AccumulatorOp is the reduction applied per group.
type AccumulatorOp string

const (
	Count AccumulatorOp = "count"
	Sum   AccumulatorOp = "sum"
	Avg   AccumulatorOp = "avg"
	Min   AccumulatorOp = "min"
	Max   AccumulatorOp = "max"
	Push  AccumulatorOp = "push"
)

// Accumulator computes the output field As from Field over every document of a group.
// Field is ignored for Count.
type Accumulator struct {
	As    FieldNameString
	Op    AccumulatorOp
	Field FieldNameString
}

// GroupStage buckets documents by Key. Every output document carries the key value in KeyAs
// plus one field per Accumulator, and nothing else.
type GroupStage struct {
	Key          GroupKey
	KeyAs        FieldNameString
	Accumulators []Accumulator
}

// SortStage orders documents by the given fields, which may be accumulator outputs.
type SortStage struct {
	Fields []SortField
}

// LimitStage caps the number of documents.
type LimitStage struct {
	N int
}

func (MatchStage) isStage()  {}
func (UnwindStage) isStage() {}
func (GroupStage) isStage()  {}
func (SortStage) isStage()   {}
func (LimitStage) isStage()  {}

func Match(predicate Predicate, predicates ...Predicate) MatchStage {
	return MatchStage{Predicates: append([]Predicate{predicate}, predicates...)}
}

func Unwind(field FieldNameString) UnwindStage {
	return UnwindStage{Field: field}
}

func GroupBy(key GroupKey, keyAs FieldNameString, accumulators ...Accumulator) GroupStage {
	return GroupStage{Key: key, KeyAs: keyAs, Accumulators: accumulators}
}

func SortBy(fields ...SortField) SortStage {
	return SortStage{Fields: fields}
}

func LimitTo(n int) LimitStage {
	return LimitStage{N: n}
}

// Pipeline is an ordered, immutable list of Stage(s).
type Pipeline struct {
	stages []Stage
}

func BuildPipeline(stages ...Stage) Pipeline {
	return Pipeline{stages: slices.Clone(stages)}
}

func (p Pipeline) Stages() []Stage {
	return p.stages
}

// Prepend returns a Pipeline with stage in front of all existing stages.
func (p Pipeline) Prepend(stage Stage) Pipeline {
	return Pipeline{stages: append([]Stage{stage}, p.stages...)}
}

// Append returns a Pipeline with stage after all existing stages.
func (p Pipeline) Append(stage Stage) Pipeline {
	return Pipeline{stages: append(slices.Clone(p.stages), stage)}
}
