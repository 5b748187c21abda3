// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"fmt"
	"time"

	"github.com/poiesic/corpusvec/ai"
)

// Stats summarizes one pipeline run.
type Stats struct {
	RunID string
	State State

	// Read is the number of records taken from the source.
	Read int
	// Skipped counts records with an empty identifier or text.
	Skipped int
	// Embedded counts records with a successful embedding.
	Embedded int
	// EmbedFailures counts failed embeddings by kind.
	EmbedFailures map[ai.ErrorKind]int
	// Indexed counts entries in batches that were written.
	Indexed int
	// Lost counts embedded entries in batches that failed to write.
	Lost int

	Batches       int
	FailedBatches int
	Elapsed       time.Duration
}

// Failed returns the total number of failed embeddings.
func (s Stats) Failed() int {
	n := 0
	for _, count := range s.EmbedFailures {
		n += count
	}
	return n
}

func (s Stats) String() string {
	return fmt.Sprintf("%d records read, %d indexed in %d batches, %d skipped, %d failed, %d lost in %d failed batches (%s)",
		s.Read, s.Indexed, s.Batches, s.Skipped, s.Failed(), s.Lost, s.FailedBatches, s.Elapsed.Round(time.Millisecond))
}
