// Package riposte is a decision engine for conditional input automation.
//
// A Machine aggregate holds named states, guarded transitions between them
// and prioritized rules that bind a condition to an opaque action
// reference. Facts, simple key/value observations produced by a
// recognition subsystem, drive both rules and transitions: the Engine
// polls a fact source, evaluates every enabled rule in priority order,
// dispatches the actions of the rules that held and follows guarded
// transitions that opened up.
//
// Machines are built programmatically through the aggregate API or loaded
// from a YAML definition via the dsl package, activated, then run:
//
//	machine, _ := dsl.Load("combat.yaml")
//	_ = machine.Activate()
//
//	dispatcher := memory.NewDispatcher()
//	dispatcher.Register("use_potion", usePotion)
//
//	engine, _ := riposte.New(machine,
//		riposte.WithDispatcher(dispatcher),
//		riposte.WithFactSource(source),
//	)
//	_ = engine.Run(ctx)
//
// Persistence and coordination are pluggable through the ports package,
// with in-memory, file and Redis adapters under pkg/adapters.
package riposte
