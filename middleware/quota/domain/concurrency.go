package domain

import "context"

// SlotPool limita quantos trabalhos de documento (merge, split, compressão,
// conversão de imagens) rodam ao mesmo tempo no processo. Cada trabalho carrega
// os PDFs inteiros em memória, então o limite é sobre memória e CPU, não sobre cota.
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
// Ao adquirir, retorna uma função de release que deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}

// SlotUsage é opcional: pools que sabem quantas vagas estão ocupadas.
type SlotUsage interface {
	InFlight() int
	Capacity() int
}
