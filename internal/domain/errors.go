package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyBound       = errors.New("admin already bound")
	ErrNotBound           = errors.New("admin not bound")
	ErrNotAdmin           = errors.New("not the bound admin")
	ErrPasswordNotSet     = errors.New("admin password not set")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrLoginExpired       = errors.New("login challenge expired")
	ErrNoPendingLogin     = errors.New("no pending login")
	ErrNotGroupChat       = errors.New("not a group chat")
	ErrNotPrivateChat     = errors.New("not a private chat")
	ErrOriginNotFound     = errors.New("original sender not found")
	ErrDeliveryFailed     = errors.New("message delivery failed")
	ErrBotBlocked         = errors.New("bot blocked by user")
	ErrNoDraft            = errors.New("no lottery draft")
	ErrDraftExpired       = errors.New("lottery draft expired")
	ErrEmptyInput         = errors.New("empty input")
	ErrInvalidPrizeCount  = errors.New("invalid prize count")
	ErrNoPrizes           = errors.New("at least one prize is required")
	ErrPrizeCountPending  = errors.New("prize count not entered yet")
	ErrUnexpectedStep     = errors.New("action not valid at this step")
	ErrKeywordInUse       = errors.New("keyword already used by an active lottery")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrLotteryNotFound    = errors.New("lottery not found")
	ErrLotteryNotActive   = errors.New("lottery is not active")
	ErrAnnouncementFailed = errors.New("failed to post lottery announcement")
)
