// Package ripper implements the delegation chain behind every download run.
//
// A run has exactly one Controller. It is the only node that can fetch pages,
// move the directory cursor or write files. Site rippers embed a Node whose
// parent is the Controller or another node, and every request a node receives
// is forwarded up the chain unchanged:
//
//	site -> section -> item
//	  \________\________\____ Fetch, Descend, Ascend, Save ──> Controller
//
// The cursor starts in the working directory and moves with Descend and
// Ascend; the process working directory itself is never changed. In a dry
// run Descend always succeeds, Ascend does nothing and Save writes nothing,
// so the traversal logic runs end to end without touching the filesystem.
//
// Site rippers make themselves available with Register, usually from an
// init function. Controller.Run starts the one named by the "ripper" key of
// the configuration document.
package ripper
