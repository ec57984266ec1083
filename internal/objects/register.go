// register.go wires every concrete channel-owner type in this package into
// the shared default factory, so internal/rpc never needs to import
// internal/objects directly (see DESIGN.md: avoiding the rpc<->objects
// import cycle).
package objects

import "github.com/corvid-labs/drivebridge/internal/channelowner"

func init() {
	f := channelowner.DefaultFactory()

	f.Register("Playwright", newPlaywright)
	f.Register("BrowserType", newBrowserType)
	f.Register("Browser", newBrowser)
	f.Register("BrowserContext", newBrowserContext)
	f.Register("Frame", newFrame)
	f.Register("Page", newPage)
	f.Register("Route", newRoute)
	f.Register("Request", newRequest)
	f.Register("Response", newResponse)
	f.Register("WebSocket", newWebSocket)
	f.Register("ElementHandle", newElementHandle)
	f.Register("Download", newDownload)
	f.Register("Dialog", newDialog)

	for _, typeName := range []string{"Android", "Electron", "Tracing", "APIRequestContext", "LocalUtils"} {
		f.Register(typeName, newOpaqueConstructor(typeName))
	}
}
