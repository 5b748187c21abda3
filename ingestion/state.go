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

// State is a step of the ingestion state machine.
//
//	INIT -> READING -> (EMBEDDING -> ACCUMULATING -> [FLUSHING] -> READING)* -> FINAL_FLUSH -> DONE
type State int

const (
	StateInit State = iota
	StateReading
	StateEmbedding
	StateAccumulating
	StateFlushing
	StateFinalFlush
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateReading:
		return "READING"
	case StateEmbedding:
		return "EMBEDDING"
	case StateAccumulating:
		return "ACCUMULATING"
	case StateFlushing:
		return "FLUSHING"
	case StateFinalFlush:
		return "FINAL_FLUSH"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}
