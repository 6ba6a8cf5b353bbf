package repository

// BarcodeSequenceRepository puerto del contador persistido de códigos de barras.
// NextValue debe ser un incremento atómico (UPDATE ... RETURNING o equivalente),
// nunca read-then-increment: es el único punto de serialización entre paquetes.
type BarcodeSequenceRepository interface {
	// NextValue incrementa y devuelve el siguiente valor de la secuencia del
	// prefijo dado, sembrándola en start si aún no existe.
	NextValue(prefix string, start int64) (int64, error)
	// Current devuelve el último valor asignado (start-1 si no existe).
	Current(prefix string, start int64) (int64, error)
}
