// download.go, dialog.go — spec.md §4.4 event-hook channel-owners. Both are
// thin: their interesting state arrives in the initializer, and their one
// or two operations are simple RPC round trips.
package objects

import (
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
)

// Download represents one file download triggered by page interaction.
type Download struct {
	channelowner.Base

	URL      string
	Filename string
}

type downloadInitializer struct {
	URL      string `json:"url"`
	SuggestedFilename string `json:"suggestedFilename"`
}

func newDownload(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	var init downloadInitializer
	_ = json.Unmarshal(initializer, &init)
	return &Download{
		Base:     channelowner.NewBase(sender, guid, "Download", parent, initializer),
		URL:      init.URL,
		Filename: init.SuggestedFilename,
	}
}

// Path asks the driver for the local path of the completed download.
func (d *Download) Path() (string, error) {
	raw, err := d.Send("path", nil)
	if err != nil {
		return "", err
	}
	var res struct {
		Value string `json:"value"`
	}
	_ = json.Unmarshal(raw, &res)
	return res.Value, nil
}

// Delete removes the downloaded file from disk.
func (d *Download) Delete() error {
	_, err := d.Send("delete", nil)
	return err
}
