// Package harness runs synchronization scenarios against in-memory fakes.
//
// A scenario seeds the task list, feeds one or more batches of transcripts
// through a real engine.Synchronizer, and checks the per-cycle counts, the
// calls made to the task service, and the final task list.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	options:
//	  sentence_tracking: true
//	  include_completed: false
//	tasks:
//	  - text: "Buy Milk"
//	    completed: false
//	fail_create: ["Call mom"]
//	cycles:
//	  - transcripts:
//	      - id: log-1
//	        body: "add buy milk to my to-do list"
//	    expect: { added: 0, skipped: 1 }
//	    complete: ["Buy Milk"]
//	assertions:
//	  - type: created
//	    texts: []
//	  - type: outcome
//	    cycle: 1
//	    text: "Buy milk"
//	    action: skipped
//
// # Assertion Types
//
//   - created: the exact ordered list of texts sent to create
//   - create_count: the number of creation attempts
//   - outcome: a cycle produced an outcome with the given text and action
//   - final_tasks: the exact ordered list of active task texts at the end
//
// # Deterministic Testing
//
// Cycle ids come from testutil.SequentialIDs and task ids from the fake
// task service, so traces are identical across runs and can be compared
// against golden files in testdata/golden.
package harness
