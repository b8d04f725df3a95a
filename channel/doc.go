// Package channel defines pulse channel names and the events they carry.
//
// A channel name has the form "<type>:<identifier>", where type is one of
// the closed set of event domains (runs, run, approvals, audit) and
// identifier is an opaque non-empty token without ':'.
//
//	name := channel.Runs("ws_1")            // "runs:ws_1"
//	t, id, err := channel.Parse("run:r_42") // TypeRun, "r_42", nil
//
// Events arrive as JSON envelopes {id, type, channel, timestamp, payload}.
// Decode validates the envelope; the payload stays raw until a consumer
// narrows it with a guard and DecodePayload:
//
//	if channel.IsRunEvent(ev) && ev.Type == channel.EventStepCompleted {
//	    step, err := channel.DecodePayload[channel.StepPayload](ev)
//	}
package channel
