// Package creditgate provides an embeddable Go client for JobXpress credit accounting
// and the credit-gate controller, backed by Valkey or Redis.
//
// The client talks to the same keyspace as the creditgate service, so a worker that
// embeds it sees the balances the HTTP API hands out.
//
//	client, err := creditgate.New(ctx,
//	    creditgate.WithValkey("localhost:6379", ""),
//	    creditgate.WithPaymentLink("https://buy.stripe.com/starter"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	ok, available, _ := client.CanSpend(ctx, userID, 1)
//	if ok {
//	    remaining, _ := client.DebitSearch(ctx, userID, len(results))
//	    _ = remaining
//	}
//
// # Gate sessions
//
// A gate session tracks whether the upsell modal is open for one user:
//
//	sid := client.StartSession(ctx, userID)
//	view, opened, _ := client.CheckAndOpen(ctx, sid, userID)
//	if opened {
//	    render(view.PaymentLinkURL, view.Countdown)
//	}
//	_, _ = client.CloseGate(ctx, sid)
//	_ = client.EndSession(ctx, sid)
package creditgate
