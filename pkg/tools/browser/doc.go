// Package browser provides the fixed catalogue of browser tools a model can
// call.
//
// Tools come in two flavours selected by configuration:
//
//   - Snapshot mode (default): tools address elements by a Playwright
//     selector taken from the page snapshot, e.g. role=button[name="Submit"].
//     Interactions recapture the snapshot so the model always sees the page
//     as it is after the action.
//   - Vision mode: tools address the page by viewport coordinates read off a
//     screenshot (browser_screen_capture).
//
// Every tool carries a capability tag (core, tabs, pdf, history, wait,
// files). Only tools whose capability is enabled in the configuration are
// registered; the tag is never shown to the model.
//
// # Example Usage
//
//	registry, err := browser.NewRegistry(browser.OptionsFromConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	sess, err := session.New(cfg, factory, registry)
//	resp, err := sess.Run(ctx, "browser_navigate", json.RawMessage(`{"url":"https://example.com"}`))
package browser
