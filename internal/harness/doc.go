// Package harness runs scripted admin sessions against a fresh gate.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: remove_by_owner
//	description: "Owner removal waits for confirmation"
//	steps:
//	  - command: add 192.168.1.5 Alice
//	    expect: [add-success]
//	  - command: remove alice
//	    actor: Admin
//	    expect: [remove-confirm]
//	  - advance: 10s
//	  - command: confirm
//	    actor: Admin
//	    expect: [remove-owner-success, confirm-success]
//	  - check: 192.168.1.5
//	    decision: deny
//	assertions:
//	  - type: denied
//	    address: 192.168.1.5
//	  - type: record_count
//	    count: 0
//
// # Step Kinds
//
//   - command: an admin command line, dispatched as actor (the console when
//     omitted). expect lists the message keys the actor must receive, in order.
//     permitted: false runs the command without permission.
//   - check: a connection decision for an address; decision is allow or deny.
//   - advance: moves the manual clock forward and sweeps expired confirmations.
//
// # Assertion Types
//
//   - authorized: the address is in the store
//   - denied: the address is not in the store
//   - record_count: the store holds exactly count records
//   - pending: whether actor has a live pending confirmation
//
// # Deterministic Testing
//
// Every scenario runs in its own data directory with the default
// configuration and a manual clock starting at testutil.Epoch, so the
// transcript is identical across runs and can be compared against a golden
// file.
package harness
