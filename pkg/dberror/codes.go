package dberror

// Constructors for the storage error taxonomy. Each returns a DBError with the
// matching Code and Category; callers typically chain In(op, component).

func SchemaMismatch(format string, args ...any) *DBError {
	return Newf(ErrCategoryUser, CodeSchemaMismatch, "record does not match schema", format, args...)
}

func TypeMismatch(format string, args ...any) *DBError {
	return Newf(ErrCategoryUser, CodeTypeMismatch, "field type does not match schema", format, args...)
}

func FieldTooLarge(format string, args ...any) *DBError {
	return Newf(ErrCategoryUser, CodeFieldTooLarge, "field exceeds declared width", format, args...)
}

func ReservedCharacter(format string, args ...any) *DBError {
	return Newf(ErrCategoryUser, CodeReservedCharacter, "field contains a reserved character", format, args...)
}

func DuplicateKey(format string, args ...any) *DBError {
	return Newf(ErrCategoryUser, CodeDuplicateKey, "primary key already exists", format, args...)
}

func NotFound(format string, args ...any) *DBError {
	return Newf(ErrCategoryUser, CodeNotFound, "no matching record", format, args...)
}

func UnsupportedField(format string, args ...any) *DBError {
	return Newf(ErrCategoryUser, CodeUnsupportedField, "field is not part of the schema", format, args...)
}

func BucketsFull(format string, args ...any) *DBError {
	return Newf(ErrCategoryCapacity, CodeBucketsFull, "no bucket has room for the record", format, args...).
		WithHint("reload the store so bucket count is recomputed for the new record count")
}

func CorruptCatalog(format string, args ...any) *DBError {
	return Newf(ErrCategoryData, CodeCorruptCatalog, "store catalog is malformed", format, args...)
}

func InvalidInterval(format string, args ...any) *DBError {
	return Newf(ErrCategoryUser, CodeInvalidInterval, "interval cannot be enumerated", format, args...)
}

func InvalidKey(format string, args ...any) *DBError {
	return Newf(ErrCategoryUser, CodeInvalidKey, "primary key is not an integer", format, args...)
}

func InvalidConfig(format string, args ...any) *DBError {
	return Newf(ErrCategorySystem, CodeInvalidConfig, "invalid configuration", format, args...)
}
