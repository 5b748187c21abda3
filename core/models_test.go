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


package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "bible_verses:Genesis 1:1",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "In the beginning God created the heaven and the earth. And the earth was without form, and void.",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("A:1")
	id2 := IDFromContent("A:2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestNewMetadata(t *testing.T) {
	md := NewMetadata("verse", "text", Record{ID: "John 3:16", Text: "For God so loved the world"})

	if len(md) != 2 {
		t.Fatalf("NewMetadata() has %d entries, want 2", len(md))
	}
	if md["verse"] != "John 3:16" {
		t.Errorf("metadata verse = %q, want %q", md["verse"], "John 3:16")
	}
	if md["text"] != "For God so loved the world" {
		t.Errorf("metadata text = %q, want %q", md["text"], "For God so loved the world")
	}
}

func TestMetadata_Clone(t *testing.T) {
	md := NewMetadata("id", "text", Record{ID: "A:1", Text: "hello"})
	clone := md.Clone()
	clone["text"] = "changed"

	if md["text"] != "hello" {
		t.Errorf("Clone() shares state with original")
	}

	var empty Metadata
	if empty.Clone() != nil {
		t.Errorf("Clone() of nil metadata should be nil")
	}
}
