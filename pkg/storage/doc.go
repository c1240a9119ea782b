// Package storage performs the filesystem work behind a ripper's directory
// cursor and its saved files.
//
// Paths are always absolute and built by the caller; the Manager never calls
// os.Chdir. Files are written to a temporary sibling and renamed into place,
// so an interrupted run never leaves a half-written file under the final
// name. Every write reports its size and BLAKE2b-256 digest.
//
// Usage:
//
//	m := storage.NewManager()
//	if err := storage.ValidateName("reports"); err != nil {
//	    return err
//	}
//	if err := m.CreateDir(filepath.Join(cwd, "reports")); err != nil {
//	    return err
//	}
//	res, err := m.SaveFile(body, filepath.Join(cwd, "reports", "a.pdf"))
package storage
