package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"pcb-viewer/internal/gltfload"
	"pcb-viewer/internal/normalize"
	"pcb-viewer/internal/scene"
	"pcb-viewer/internal/tutorial"
)

func main() {
	target := flag.Float64("target", 10, "Normalization target size")
	steps := flag.String("tutorial", "", "Tutorial JSON to check part names against (default: built-in)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect [-target N] [-tutorial steps.json] model.gltf")
		os.Exit(2)
	}
	path := flag.Arg(0)

	root, err := gltfload.Load(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	st := root.Stats()
	fmt.Printf("Nodes: %d, Meshes: %d, Triangles: %d, Vertices: %d\n", st.Nodes, st.Meshes, st.Triangles, st.Vertices)
	printTree(root, 0)

	res, err := normalize.Normalize(root, *target)
	if err != nil {
		fmt.Printf("Normalize: %v\n", err)
		os.Exit(1)
	}
	b := res.Bounds
	size := b.Size()
	fmt.Println("--- Normalization ---")
	fmt.Printf("  Source BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n", b.Min[0], b.Max[0], b.Min[1], b.Max[1], b.Min[2], b.Max[2])
	fmt.Printf("  Size: %.3f x %.3f x %.3f\n", size[0], size[1], size[2])
	fmt.Printf("  Centre: (%.3f, %.3f, %.3f)  Scale: %.6f\n", res.Center[0], res.Center[1], res.Center[2], res.Scale)
	wb := root.WorldBounds()
	ws := wb.Size()
	fmt.Printf("  World size after: %.3f x %.3f x %.3f\n", ws[0], ws[1], ws[2])

	// Tutorial parts missing from the model never highlight anything.
	list := tutorial.Default()
	if *steps != "" {
		if list, err = tutorial.Load(*steps); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Println("--- Tutorial parts ---")
	for i, s := range list {
		status := "ok"
		if root.Find(s.Part) == nil {
			status = "MISSING"
		}
		fmt.Printf("  [%d] %-24s %s\n", i, s.Part, status)
	}
}

func printTree(n *scene.Node, depth int) {
	name := n.Name
	if name == "" {
		name = "(unnamed)"
	}
	line := strings.Repeat("  ", depth) + name
	if n.Mesh != nil {
		b := n.Mesh.Bounds()
		size := b.Size()
		mat := "none"
		if n.Material != nil {
			mat = n.Material.Name
		}
		line += fmt.Sprintf("  tris=%d verts=%d size=%.2fx%.2fx%.2f material=%q",
			len(n.Mesh.Tris), len(n.Mesh.Positions), size[0], size[1], size[2], mat)
	}
	fmt.Println(line)
	for _, c := range n.Children {
		printTree(c, depth+1)
	}
}
