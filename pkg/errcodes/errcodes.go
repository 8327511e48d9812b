package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"

	InvalidUserID       failure.ErrorCode = "InvalidUserID"
	InvalidBidAmount    failure.ErrorCode = "InvalidBidAmount"
	InvalidBidContext   failure.ErrorCode = "InvalidBidContext"
	InvalidPlatform     failure.ErrorCode = "InvalidPlatform"
	QueueFull           failure.ErrorCode = "QueueFull"
	DispatcherStopped   failure.ErrorCode = "DispatcherStopped"
	CollaboratorFailure failure.ErrorCode = "CollaboratorUnavailable"
	CycleInProgress     failure.ErrorCode = "CycleInProgress"
	NoPlatformData      failure.ErrorCode = "NoPlatformData"
	PlatformCostMissing failure.ErrorCode = "PlatformCostMissing"
	LedgerWriteFailed   failure.ErrorCode = "LedgerWriteFailed"
)
