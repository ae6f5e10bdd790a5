// Package coupons synchronizes the storefront's coupon state with the
// backend.
//
// The service caches coupon reads with a TTL, collapses bursts of identical
// validation requests into a single backend call, invalidates cached state
// the moment the backend pushes a coupon change, and reports apply/remove
// events to analytics.
//
//	channel := realtime.New(wsURL, realtime.NewWebsocketTransport())
//	svc := coupons.New(apiclient.New(apiURL), channel)
//	if err := svc.Initialize(ctx); err != nil { ... }
//	defer svc.Cleanup()
//
//	res, err := svc.Validate(ctx, coupons.ValidateRequest{
//		Code:      "SAVE10",
//		CartTotal: coupons.Money{Amount: 1897, Currency: "INR"},
//	})
//
// Validation outcomes distinguish business invalidity from failure: an
// expired or exhausted coupon resolves with IsValid=false, while a network
// or backend failure returns an error and caches nothing.
package coupons
