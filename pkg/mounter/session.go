package mounter

// An Entry records one established mount awaiting teardown.
type Entry struct {
	MountPoint string
	DaemonPid  int
}

// A Table is the session mount table: the mounts this plug-in instance
// established for the current step, in establishment order. It lives for
// exactly one step; the host runs one step per process image.
type Table struct {
	entries []Entry
}

// Add appends a successfully established mount.
func (t *Table) Add(mountPoint string, daemonPid int) {
	t.entries = append(t.entries, Entry{MountPoint: mountPoint, DaemonPid: daemonPid})
}

// Len returns the number of recorded mounts.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns the recorded mounts in establishment order. Teardown
// must walk the result backwards so children unmount before parents.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Clear empties the table after teardown.
func (t *Table) Clear() {
	t.entries = nil
}
