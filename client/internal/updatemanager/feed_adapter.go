package updatemanager

import (
	"context"

	"github.com/avrix/launcher/client/internal/updatemanager/feed"
)

type feedChecker struct {
	client *feed.Client
}

// NewFeedChecker adapts the release feed client to the Checker interface
func NewFeedChecker(client *feed.Client) Checker {
	return feedChecker{client: client}
}

func (f feedChecker) Check(ctx context.Context) (Update, error) {
	update, err := f.client.Check(ctx)
	if err != nil {
		return nil, err
	}
	// keep a nil *feed.Update from turning into a non-nil interface
	if update == nil {
		return nil, nil
	}
	return update, nil
}
