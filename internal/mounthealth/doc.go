// Package mounthealth checks the availability of externally managed cloud
// mount points. It reports whether a mount is present and writable; it
// never assumes exclusive ownership of the path.
package mounthealth
