// Package fuzztests houses Go fuzz harnesses for the unit reader and the
// checking stages. They guard against panics and internal errors on
// arbitrary parser output.
//
// Назначение: декодировать байты как JSON-единицу трансляции и прогонять
// её через pipeline.
//
// Не делает: генерацию корпусов, выполнение CLI.
//
// Зависимости: internal/astio, internal/pipeline.
package fuzztests
