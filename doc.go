// Package livesync keeps storefront state synchronized with the backend.
//
// It composes three mechanisms behind one generic engine: a TTL-bounded
// result cache, a realtime push channel that invalidates that cache the
// moment the server reports a change, and a request-coalescing pipeline that
// collapses bursts of identical validation calls into one network round trip.
// Domain packages (coupons, comparison) are thin adapters over the engine.
//
//	api := apiclient.New(cfg.APIURL, apiclient.WithBearerToken(token))
//	ch := realtime.New(cfg.WSURL+"/coupons", realtime.NewWebsocketTransport())
//	svc := coupons.New(api, ch)
//
//	if err := svc.Initialize(ctx); err != nil { ... }
//	defer svc.Cleanup()
//
//	res, err := svc.Validate(ctx, coupons.ValidateRequest{
//	    Code:      "SAVE10",
//	    CartTotal: coupons.Money{Amount: 1897, Currency: "INR"},
//	})
package livesync
