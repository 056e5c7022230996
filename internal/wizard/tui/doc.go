// Package tui implements the interactive provisioning wizard.
//
// The wizard walks through three screens:
//
//   - Discovery: browses mDNS for setup portals, or takes a manual address
//   - Credentials: collects the network name and secret
//   - Result: shows the portal's reply, or the error with troubleshooting
//
// Screen transitions are messages handled by AppModel. The network work is
// injected through Services so the screens can be driven in tests without
// a portal or a multicast network.
package tui
