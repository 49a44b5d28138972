// Command voxbench runs a handful of end-to-end workloads against
// Voxelis, logging timings and pool stats for each so the DAG-sharing
// and batch-amortization behavior can be eyeballed against real numbers.
package main

import (
	"log"
	"math/rand/v2"
	"time"

	"github.com/voxelis-io/voxelis"
)

func main() {
	prng := rand.New(rand.NewPCG(42, 42))
	log.SetFlags(log.Lmicroseconds)

	const depth = 5 // 32^3
	const side = int32(1) << depth

	store := voxelis.NewNodeStore()

	// Fill then point-override.
	ts := time.Now()
	t1 := voxelis.NewVoxTree[uint16](depth, 0)
	_ = t1.Fill(store, 1)
	if err := t1.Set(store, [3]int32{3, 0, 4}, 2); err != nil {
		log.Fatalf("set: %v", err)
	}
	log.Printf("fill+override: %v, stats=%+v", time.Since(ts), store.MemoryStats())

	// Uniform write via batch vs single sets.
	store2 := voxelis.NewNodeStore()
	t2 := voxelis.NewVoxTree[uint16](depth, 0)

	ts = time.Now()
	b := t2.CreateBatch()
	for y := int32(0); y < side; y++ {
		for z := int32(0); z < side; z++ {
			for x := int32(0); x < side; x++ {
				_ = b.Set(store2, [3]int32{x, y, z}, 1)
			}
		}
	}
	if err := t2.ApplyBatch(store2, b); err != nil {
		log.Fatalf("apply batch: %v", err)
	}
	batchElapsed := time.Since(ts)
	touched, unchanged := b.Stats()
	log.Printf("batch uniform fill: %v, touched=%d unchanged=%d is_empty=%v",
		batchElapsed, touched, unchanged, t2.IsEmpty())

	store3 := voxelis.NewNodeStore()
	t3 := voxelis.NewVoxTree[uint16](depth, 0)
	ts = time.Now()
	for y := int32(0); y < side; y++ {
		for z := int32(0); z < side; z++ {
			for x := int32(0); x < side; x++ {
				if err := t3.Set(store3, [3]int32{x, y, z}, 1); err != nil {
					log.Fatalf("set: %v", err)
				}
			}
		}
	}
	singleElapsed := time.Since(ts)
	log.Printf("single-set uniform fill: %v (%.1fx slower than batch)",
		singleElapsed, float64(singleElapsed)/float64(batchElapsed))

	// DAG sharing across independent trees on one interner.
	shared := voxelis.NewNodeStore()
	treeA := voxelis.NewVoxTree[uint16](depth, 0)
	treeB := voxelis.NewVoxTree[uint16](depth, 0)
	_ = treeA.Fill(shared, 1)
	_ = treeB.Fill(shared, 1)
	log.Printf("dag sharing: fingerprints equal=%v, stats=%+v",
		treeA.Fingerprint() == treeB.Fingerprint(), shared.MemoryStats())

	// LOD reduction over a randomly filled tree.
	lodStore := voxelis.NewNodeStore()
	lodTree := voxelis.NewVoxTree[uint16](depth, 0)
	for i := 0; i < 2000; i++ {
		x, y, z := prng.Int32N(side), prng.Int32N(side), prng.Int32N(side)
		_ = lodTree.Set(lodStore, [3]int32{x, y, z}, 1)
	}
	for lod := uint8(0); lod <= depth; lod++ {
		ts = time.Now()
		vec := lodTree.ToVec(lodStore, lod)
		log.Printf("lod reduction (lod=%d): len=%d, elapsed=%v", lod, len(vec), time.Since(ts))
	}
}
