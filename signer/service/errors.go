package service

type InvalidRequestError struct{ message string }

func (e *InvalidRequestError) Error() string  { return e.message }
func (e *InvalidRequestError) ErrorCode() int { return -32010 }

type UnauthorizedKeyError struct{ message string }

func (e *UnauthorizedKeyError) Error() string  { return e.message }
func (e *UnauthorizedKeyError) ErrorCode() int { return -32011 }

type UnknownKeyError struct{ message string }

func (e *UnknownKeyError) Error() string  { return e.message }
func (e *UnknownKeyError) ErrorCode() int { return -32012 }

type ProviderError struct{ message string }

func (e *ProviderError) Error() string  { return e.message }
func (e *ProviderError) ErrorCode() int { return -32013 }
