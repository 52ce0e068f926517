// Package bundle embeds the default restaurant source data shipped with the
// binary. It is used whenever no source path is configured.
package bundle

import _ "embed"

// Name identifies the embedded source in logs and status output.
const Name = "bundle:restaurant_data.json"

//go:embed restaurant_data.json
var Data []byte
