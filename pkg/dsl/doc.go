/*
Package dsl loads declarative machine definitions.

A definition is a YAML document naming the machine's states, guarded
transitions and prioritized rules:

	name: farm-bot
	policy: strict
	states:
	  - name: Fighting
	  - name: Fleeing
	transitions:
	  - from: Initial
	    to: Fighting
	    guard: {fact: enemy_visible, op: eq, value: true}
	  - from: Fighting
	    to: Fleeing
	rules:
	  - name: flee-when-hurt
	    when: {fact: health, op: "<", value: 10}
	    action: Flee
	    priority: 10

Definitions are built through the Machine aggregate, so everything a
hand-built machine must satisfy, a loaded one must too.
*/
package dsl
