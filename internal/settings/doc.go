// Package settings provides the durable shared settings namespace.
//
// It stores named binary values in an embedded Badger database so
// they survive process restarts and are visible to every component in
// the process. The bookmark registry persists its token collection as
// a single value here.
//
// Values may optionally be sealed at rest with an authenticated
// cipher; the value name doubles as additional authenticated data so
// a sealed value cannot be silently swapped under another name.
package settings
