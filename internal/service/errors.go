package service

import "errors"

var (
	ErrEmailTaken          = errors.New("email already taken")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session expired")
	ErrRegistrationClosed  = errors.New("registration is closed")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrInvalidFamilyCode   = errors.New("invalid family code")
	ErrFamilyNotFound      = errors.New("family not found")
	ErrNotFamilyMember     = errors.New("user is not a member of this family")
	ErrAlreadyMember       = errors.New("user is already a member of this family")
	ErrChildNotFound       = errors.New("child not found")
	ErrInvalidChildLogin   = errors.New("invalid family code, username or PIN")
	ErrSchoolYearNotFound  = errors.New("school year not found")
	ErrBreakNotFound       = errors.New("break not found")
	ErrNoActiveSchoolYear  = errors.New("no school year covers this date")
	ErrCourseNotFound      = errors.New("course not found")
	ErrCourseComplete      = errors.New("course is already complete")
	ErrAttendanceNotFound  = errors.New("attendance record not found")
	ErrAssignmentNotFound  = errors.New("assignment not found")
	ErrReadingLogNotFound  = errors.New("reading log not found")
	ErrGoalNotFound        = errors.New("goal not found")
	ErrPortfolioNotFound   = errors.New("portfolio item not found")
	ErrFileTooLarge        = errors.New("file is too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrUnknownAchievement  = errors.New("unknown achievement")
	ErrForbidden           = errors.New("not allowed")
	ErrEmailDisabled       = errors.New("email is not configured")
)
