// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package course

import (
	"fmt"

	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/validate"
	"github.com/taibuivan/academia/pkg/slice"
	"github.com/taibuivan/academia/pkg/uuid"
)

// mintAttempts bounds retries when the generator returns an id already in the tree.
const mintAttempts = 8

// ReconcileSummary counts what a content edit did to the tree.
type ReconcileSummary struct {
	Carried int // Nodes that kept an echoed identity
	Minted  int // Nodes that received a fresh identity
	Dropped int // Stored nodes absent from the edit
}

/*
Reconcile merges an edited content tree into the stored one.

Sections and Chapters that echo an identity keep it; those without one get a
fresh identity from newID that is unique across the whole tree. The result
follows the incoming order exactly and omitted nodes are dropped, so the edit
is a full replacement. Stored ids are only used to report what was dropped.

Parameters:
  - stored: []Section (current content)
  - incoming: []SectionInput (edited content, in display order)
  - newID: uuid.Generator

Returns:
  - []Section: The merged content (never nil)
  - ReconcileSummary: Counters for logging
  - error: apperr.ValidationError on duplicate sibling identities or unknown chapter types
*/
func Reconcile(stored []Section, incoming []SectionInput, newID uuid.Generator) ([]Section, ReconcileSummary, error) {
	var summary ReconcileSummary

	if err := validateTree(incoming); err != nil {
		return nil, summary, err
	}

	// Every echoed identity is reserved up front so a minted one can never shadow it.
	taken := make(map[string]struct{})
	for _, section := range incoming {
		reserve(taken, section.SectionID)
		for _, chapter := range section.Chapters {
			reserve(taken, chapter.ChapterID)
		}
	}

	mint := func() (string, error) {
		for attempt := 0; attempt < mintAttempts; attempt++ {
			id := newID()
			if _, exists := taken[id]; id != "" && !exists {
				taken[id] = struct{}{}
				summary.Minted++
				return id, nil
			}
		}
		return "", apperr.Internal(fmt.Errorf("reconcile: identity generator kept returning used ids"))
	}

	merged := make([]Section, 0, len(incoming))
	for _, input := range incoming {
		section := Section{
			SectionID:          input.SectionID,
			SectionTitle:       input.SectionTitle,
			SectionDescription: input.SectionDescription,
			Chapters:           make([]Chapter, 0, len(input.Chapters)),
		}

		if section.SectionID == "" {
			id, err := mint()
			if err != nil {
				return nil, summary, err
			}
			section.SectionID = id
		} else {
			summary.Carried++
		}

		for _, chapterInput := range input.Chapters {
			chapter := Chapter{
				ChapterID: chapterInput.ChapterID,
				Type:      chapterInput.Type,
				Title:     chapterInput.Title,
				Content:   chapterInput.Content,
				Video:     chapterInput.Video,
			}
			if chapter.Type == "" {
				chapter.Type = ChapterText
			}

			if chapter.ChapterID == "" {
				id, err := mint()
				if err != nil {
					return nil, summary, err
				}
				chapter.ChapterID = id
			} else {
				summary.Carried++
			}

			section.Chapters = append(section.Chapters, chapter)
		}

		merged = append(merged, section)
	}

	summary.Dropped = countDropped(stored, taken)
	return merged, summary, nil
}

// validateTree rejects duplicate sibling identities and unknown chapter types.
func validateTree(incoming []SectionInput) error {
	validator := &validate.Validator{}

	if dup, index, found := slice.FirstDuplicate(incoming, func(s SectionInput) string { return s.SectionID }); found {
		validator.Custom(fmt.Sprintf("sections[%d].sectionId", index), true, fmt.Sprintf("Duplicate section id %q", dup))
	}

	for i, section := range incoming {
		if dup, index, found := slice.FirstDuplicate(section.Chapters, func(c ChapterInput) string { return c.ChapterID }); found {
			validator.Custom(fmt.Sprintf("sections[%d].chapters[%d].chapterId", i, index), true, fmt.Sprintf("Duplicate chapter id %q", dup))
		}
		for j, chapter := range section.Chapters {
			validator.Custom(fmt.Sprintf("sections[%d].chapters[%d].type", i, j),
				chapter.Type != "" && !chapter.Type.IsValid(),
				"Must be one of: Text, Quiz, Video")
		}
	}

	return validator.Err()
}

func reserve(taken map[string]struct{}, id string) {
	if id != "" {
		taken[id] = struct{}{}
	}
}

// countDropped counts stored sections and chapters whose identity is not in the merged tree.
func countDropped(stored []Section, kept map[string]struct{}) int {
	dropped := 0
	for _, section := range stored {
		if _, ok := kept[section.SectionID]; !ok {
			dropped++
		}
		for _, chapter := range section.Chapters {
			if _, ok := kept[chapter.ChapterID]; !ok {
				dropped++
			}
		}
	}
	return dropped
}
