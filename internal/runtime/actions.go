package runtime

import (
	"context"
	"fmt"
	"maps"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
)

func (e *Engine) showCarousel(ctx context.Context, session *domain.Session, r ports.Renderer) error {
	query := domain.CarouselQuery{
		Goal:   session.Goal,
		Age:    stringValue(session.Profile["age"]),
		Habits: stringValue(session.Habits["summary"]),
	}

	var cards []domain.Card
	ok, err := e.call(ctx, session, domain.CallCarousel, func() error {
		var err error
		cards, err = e.backend.Carousel(ctx, query)
		return err
	})
	if err != nil {
		return err
	}
	if !ok {
		r.ShowSystemNotice(MsgCarouselUnavailable)
		return nil
	}

	if cards == nil {
		cards = []domain.Card{}
	}
	session.Cards = cards
	r.ShowCards(cards)
	return nil
}

func (e *Engine) recommend(ctx context.Context, session *domain.Session, r ports.Renderer) error {
	req := domain.RecommendRequest{
		Profile: maps.Clone(session.Profile),
		Goal:    session.Goal,
		Habits:  maps.Clone(session.Habits),
		WhyNow:  session.WhyNow,
	}

	var rec *domain.Recommendation
	ok, err := e.call(ctx, session, domain.CallRecommend, func() error {
		var err error
		rec, err = e.backend.Recommend(ctx, req)
		return err
	})
	if err != nil {
		return err
	}
	if !ok {
		if err := e.pacer.Say(ctx, r, MsgRecommendFallback, false); err != nil {
			return err
		}
		r.ShowQuickReplies([]string{ReplySeePlanDetails})
		return nil
	}

	if rec != nil && rec.Summary != "" {
		if err := e.pacer.Say(ctx, r, rec.Summary, false); err != nil {
			return err
		}
	}
	if rec != nil && rec.Plan != "" {
		if err := e.pacer.Say(ctx, r, fmt.Sprintf(MsgRecommendPlan, rec.Plan), false); err != nil {
			return err
		}
	}
	if err := e.pacer.Say(ctx, r, MsgRecommendAsk, false); err != nil {
		return err
	}
	r.ShowQuickReplies([]string{ReplySeePlanDetails, ReplyStartMyPlan})
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
