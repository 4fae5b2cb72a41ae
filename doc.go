// Package quorum provides an embeddable approval workflow engine.
//
// The engine gates workflow state transitions behind group votes evaluated
// against recursive approval rules, and comes with pluggable service layers
// such as:
//
//   - auth    – role-scoped permission resolution and role assignment
//   - ballot  – vote recording with eligibility and step-up checks
//   - stepup  – single-use privileged authorization contexts
//   - recalc  – asynchronous status recalculation and expiry sweep
//
// Quorum is designed to be embedded in host applications. End-users
// typically interact with the engine via the high-level Service façade
// exposed by the root package:
//
//	srv, _ := quorum.New(quorum.WithMembership(members))
//	rt := srv.Runtime()
//	_ = rt.Start(ctx)
//	tpl, _ := rt.CreateTemplate(ctx, &template.Request{Name: "deploy", RuleDSL: "group(security,2)"})
//	wf, _ := rt.CreateWorkflow(ctx, tpl.ID, "release 1.2", 0)
//	_, _ = rt.CastVote(ctx, &ballot.Request{WorkflowID: wf.ID, VoterID: "alice", VoteType: model.VoteApprove, VotedForGroups: []string{"security"}})
//
// For more details see the individual sub-packages.
package quorum
